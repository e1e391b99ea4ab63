// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"net/mail"
	"strings"
	"time"
)

const gmailSuffix = "@gmail.com"

type ContactInfo struct {
	ProjectID    string    `json:"projectId"`
	GmailAddress string    `json:"gmailAddress"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SaveContactParams struct {
	ProjectID    string
	GmailAddress string
}

// Validate trims both fields in place and checks the address is a
// well-formed gmail.com mailbox.
func (p *SaveContactParams) Validate() error {
	p.ProjectID = strings.TrimSpace(p.ProjectID)
	p.GmailAddress = strings.TrimSpace(p.GmailAddress)

	if p.ProjectID == "" {
		return ErrMissingProjectID
	}
	if p.GmailAddress == "" || !strings.HasSuffix(p.GmailAddress, gmailSuffix) {
		return ErrInvalidGmailAddress
	}

	addr, err := mail.ParseAddress(p.GmailAddress)
	if err != nil || addr.Address != p.GmailAddress || addr.Name != "" {
		return ErrInvalidGmailAddress
	}
	return nil
}
