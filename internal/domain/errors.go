// SPDX-License-Identifier: Apache-2.0

package domain

import "errors"

var ErrMissingEventFields = errors.New("missing required fields: node, status")

var ErrMissingFileName = errors.New("file name is required")
var ErrMissingFileData = errors.New("file data is required")
var ErrInvalidPDF = errors.New("invalid PDF file format")

var ErrMissingProjectID = errors.New("project ID is required")
var ErrInvalidGmailAddress = errors.New("please enter a Gmail address (@gmail.com)")

var ErrEmptyMessage = errors.New("message content is required")

var ErrWebhookNotConfigured = errors.New("webhook url not configured")
