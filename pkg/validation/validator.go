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

// Package validation checks config values and API request bodies with
// go-playground/validator, plus a few radio specific rules.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-radio/pkg/radio/protocol"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingParams = errors.New("missing params")
	ErrInvalidParams = errors.New("invalid params")
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("duration", validateDuration)
	_ = v.RegisterValidation("radiocommand", validateRadioCommand)
	_ = v.RegisterValidation("capturemode", validateCaptureMode)
	_ = v.RegisterValidation("themecolors", validateThemeColors)
	_ = v.RegisterValidation("hexdata", validateHexData)

	return &Validator{validate: v}
}

// DefaultValidator is shared by config loading and the API.
var DefaultValidator = NewValidator()

// Validate validates a struct and returns an *Error listing every failed
// field.
func (v *Validator) Validate(params any) error {
	if err := v.validate.Struct(params); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateAndUnmarshal decodes a JSON body into dest and validates it.
func ValidateAndUnmarshal[T any](body []byte, dest *T) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return ErrMissingParams
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return DefaultValidator.Validate(dest)
}

// ParseCaptureMode maps a capture name to its mode.
func ParseCaptureMode(s string) (protocol.Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "screenshot":
		return protocol.ModeImage, true
	case "memory":
		return protocol.ModeMemory, true
	case "theme":
		return protocol.ModeTheme, true
	default:
		return protocol.ModeIdle, false
	}
}

func validateDuration(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	d, err := time.ParseDuration(val)
	return err == nil && d >= 0
}

func validateRadioCommand(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, err := protocol.ParseCommand(val)
	return err == nil
}

func validateCaptureMode(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, ok := ParseCaptureMode(val)
	return ok
}

// validateThemeColors accepts a bare colour string or a full "Color
// theme" line.
func validateThemeColors(fl validator.FieldLevel) bool {
	val := strings.TrimSpace(fl.Field().String())
	if val == "" {
		return true
	}
	if _, colors, ok := protocol.ParseThemeLine(val); ok {
		val = colors
	}
	_, err := protocol.ParsePalette(val)
	return err == nil
}

// validateHexData checks for hex that decodes to whole bytes. Spaces
// between bytes are allowed.
func validateHexData(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	normalized := strings.ReplaceAll(val, " ", "")
	if normalized == "" {
		return false
	}
	_, err := protocol.DecodeHexPayload(normalized)
	return err == nil
}
