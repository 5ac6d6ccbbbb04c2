package senders

import (
	"strings"

	// registers decoders for non-UTF-8 encoded words in display names
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// parseFrom decodes a From header into display name and lowercased address.
func parseFrom(from string) (string, string, bool) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", "", false
	}
	addrs, err := mail.ParseAddressList(from)
	if err != nil || len(addrs) == 0 {
		return "", "", false
	}
	addr := addrs[0]
	return addr.Name, strings.ToLower(strings.TrimSpace(addr.Address)), true
}

func extractDomain(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return ""
	}
	at := strings.LastIndex(address, "@")
	if at == -1 {
		return ""
	}
	domain := address[at+1:]
	return strings.Trim(domain, ". ")
}
