// Zaparoo Radio
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Radio.
//
// Zaparoo Radio is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Radio is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Radio.  If not, see <http://www.gnu.org/licenses/>.

package api

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/ZaparooProject/zaparoo-radio/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/ZaparooProject/zaparoo-radio/pkg/validation"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

var (
	errEmptyRequest = errors.New("request has no command, capture or theme")
	errRateLimited  = errors.New("rate limit exceeded")
)

func sendWS(sess *melody.Session, resp models.WSResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("marshalling websocket response")
		return
	}
	if err := sess.Write(data); err != nil {
		log.Error().Err(err).Msg("sending websocket response")
	}
}

// rejectWS answers a rate limited message, echoing its ID when it has one.
func rejectWS(sess *melody.Session, msg []byte) {
	var req models.WSRequest
	_ = json.Unmarshal(msg, &req)
	sendWS(sess, models.WSResponse{ID: req.ID, Error: errRateLimited.Error()})
}

func (s *Server) handleWSMessage(sess *melody.Session, msg []byte) {
	if bytes.Equal(bytes.TrimSpace(msg), []byte(models.Ping)) {
		if err := sess.Write([]byte(models.Pong)); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}

	var req models.WSRequest
	if err := validation.ValidateAndUnmarshal(msg, &req); err != nil {
		log.Debug().Err(err).Msg("invalid websocket message")
		sendWS(sess, models.WSResponse{ID: req.ID, Error: err.Error()})
		return
	}

	resp := s.dispatchWS(&req)
	resp.ID = req.ID
	sendWS(sess, resp)
}

func (s *Server) dispatchWS(req *models.WSRequest) models.WSResponse {
	switch {
	case req.Command != "":
		cmd, err := protocol.ParseCommand(req.Command)
		if err == nil {
			err = s.radio.Send(cmd)
		}
		if err != nil {
			return models.WSResponse{Error: err.Error()}
		}
		return models.WSResponse{OK: true}
	case req.Capture != "":
		mode, _ := validation.ParseCaptureMode(req.Capture)
		id, err := s.radio.Request(mode)
		if err != nil {
			return models.WSResponse{Error: err.Error()}
		}
		return models.WSResponse{OK: true, SessionID: id.String()}
	case req.Theme != "":
		if err := s.radio.PreviewTheme(req.Theme); err != nil {
			return models.WSResponse{Error: err.Error()}
		}
		return models.WSResponse{OK: true}
	default:
		return models.WSResponse{Error: errEmptyRequest.Error()}
	}
}
