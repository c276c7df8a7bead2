// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zbx-vsphere/vsphere-status/pkg/errors"
	"github.com/zbx-vsphere/vsphere-status/pkg/serializer"
)

// HTTPStatusFromCode maps an error code to the reply status. Failures
// talking to a vSphere target are reported as a bad gateway.
func HTTPStatusFromCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case errors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case errors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeConnection, errors.ErrCodeProtocol,
		errors.ErrCodeAuthentication, errors.ErrCodeSessionExpired:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func retryableFromCode(code errors.ErrorCode) bool {
	switch code {
	case errors.ErrCodeTimeout, errors.ErrCodeUnavailable, errors.ErrCodeRateLimitExceeded,
		errors.ErrCodeInternal, errors.ErrCodeConnection, errors.ErrCodeSessionExpired:
		return true
	default:
		return false
	}
}

// WriteError writes an ErrorResponse.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code errors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr derives code, status and details from err. Deadline
// errors become TIMEOUT regardless of the code they were wrapped in.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, message string, extra map[string]any) {
	code := errors.ErrCodeInternal
	var details map[string]any

	var se *errors.StructuredError
	if stderrors.As(err, &se) {
		code = se.Code
		details = se.Context
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		code = errors.ErrCodeTimeout
	}

	details = mergeDetails(details, extra)
	if err != nil {
		details = mergeDetails(details, map[string]any{"error": err.Error()})
	}

	WriteError(w, r, HTTPStatusFromCode(code), code, message, retryableFromCode(code), details)
}

func mergeDetails(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
