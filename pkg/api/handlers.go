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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ZaparooProject/zaparoo-radio/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/capture"
	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/ZaparooProject/zaparoo-radio/pkg/validation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxBodySize = 64 * 1024

var errUnknownCapture = errors.New("unknown capture kind")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("writing response")
	}
}

// statusFor maps radio errors to HTTP status codes.
func statusFor(err error) int {
	var ve *validation.Error
	switch {
	case errors.Is(err, radio.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, radio.ErrCaptureActive), errors.Is(err, capture.ErrCaptureInProgress):
		return http.StatusConflict
	case errors.As(err, &ve),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, protocol.ErrUnknownCommand),
		errors.Is(err, protocol.ErrInvalidTheme),
		errors.Is(err, protocol.ErrInvalidMemorySlot),
		errors.Is(err, errUnknownCapture):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := models.ErrorResponse{Error: err.Error()}
	var ve *validation.Error
	if errors.As(err, &ve) {
		resp.Fields = ve.Fields
	}
	writeJSON(w, statusFor(err), resp)
}

func decodeBody[T any](r *http.Request, dest *T) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return validation.ErrInvalidParams
	}
	return validation.ValidateAndUnmarshal(body, dest)
}

func (s *Server) status() models.StatusResponse {
	resp := models.StatusResponse{
		Connected:  s.radio.Connected(),
		Port:       s.radio.Path(),
		Dispatcher: s.radio.DispatcherState(),
		State:      s.state.Snapshot(),
	}
	if info, ok := s.radio.Session(); ok {
		resp.Capture = &info
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleMemory(w http.ResponseWriter, _ *http.Request) {
	table, captured := s.state.MemoryTable()
	resp := models.MemoryResponse{
		Captured: captured,
		Slots:    make([]models.MemoryEntry, 0, len(table)),
	}
	for _, slot := range table {
		resp.Slots = append(resp.Slots, models.MemoryEntry{
			MemorySlot: slot,
			Display:    slot.FrequencyString(),
			Empty:      slot.Empty(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetMemory(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil || n < 1 || n > protocol.MemorySlots {
		writeError(w, protocol.ErrInvalidMemorySlot)
		return
	}

	var req models.MemorySlotRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	err = s.radio.SetMemorySlot(protocol.MemorySlot{
		Slot:        n,
		Band:        req.Band,
		FrequencyHz: req.FrequencyHz,
		Mode:        req.Mode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (*Server) handleListCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.CommandsResponse{Commands: protocol.CommandNames()})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	cmd, err := protocol.ParseCommand(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.radio.Send(cmd); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	mode, ok := validation.ParseCaptureMode(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, errUnknownCapture)
		return
	}
	id, err := s.radio.Request(mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, models.CaptureResponse{
		SessionID: id.String(),
		Mode:      mode.String(),
	})
}

func (s *Server) handleThemePreview(w http.ResponseWriter, r *http.Request) {
	var req models.ThemePreviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.radio.PreviewTheme(req.Colors); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	var req models.SleepRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.radio.SetSleep(req.On); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
