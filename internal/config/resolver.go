package config

import (
	"fmt"
	"strings"
)

// IMAP hosts for popular email providers
var knownIMAPHosts = map[string]string{
	"gmail.com":      "imap.gmail.com",
	"googlemail.com": "imap.gmail.com",
	"outlook.com":    "outlook.office365.com",
	"hotmail.com":    "outlook.office365.com",
	"live.com":       "outlook.office365.com",
	"yahoo.com":      "imap.mail.yahoo.com",
	"yandex.ru":      "imap.yandex.ru",
	"yandex.com":     "imap.yandex.com",
	"mail.ru":        "imap.mail.ru",
	"icloud.com":     "imap.mail.me.com",
	"me.com":         "imap.mail.me.com",
	"aol.com":        "imap.aol.com",
	"zoho.com":       "imap.zoho.com",
	"fastmail.com":   "imap.fastmail.com",
	"gmx.com":        "imap.gmx.com",
	"gmx.de":         "imap.gmx.net",
	"web.de":         "imap.web.de",
}

// ResolveIMAPHost derives the IMAP host from the username's mail domain.
// Known providers are looked up directly; anything else falls back to the
// imap.<domain> convention.
func ResolveIMAPHost(username string) (string, error) {
	parts := strings.Split(username, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("username %q is not an email address", username)
	}

	domain := strings.ToLower(parts[1])
	if host, ok := knownIMAPHosts[domain]; ok {
		return host, nil
	}

	return "imap." + domain, nil
}
