package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/multilink-dev/multilink/pkg/link"
	"github.com/multilink-dev/multilink/pkg/netsync"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "link error",
			code:    "L001",
			wantMsg: "Peer never entered multi-player mode",
			wantCat: CategoryLink,
		},
		{
			name:    "sync error",
			code:    "L101",
			wantMsg: "Update required",
			wantCat: CategorySync,
		},
		{
			name:    "config error",
			code:    "L202",
			wantMsg: "Invalid config syntax",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "L999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestFromLink(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{link.ErrModeTimeout, "L001"},
		{link.ErrHandshakeMismatch, "L003"},
		{fmt.Errorf("%w: dial refused", link.ErrPortOpen), "L006"},
		{link.ErrPeerLost, "L007"},
		{fmt.Errorf("%w: local 1.0.0, peer 1.1.0", netsync.ErrUpdateRequired), "L101"},
		{stderrors.New("boom"), "L000"},
	}
	for _, tt := range tests {
		got := FromLink(tt.err)
		if got.Code != tt.code {
			t.Errorf("FromLink(%v).Code = %q, want %q", tt.err, got.Code, tt.code)
		}
		if !stderrors.Is(got, tt.err) {
			t.Errorf("FromLink(%v) does not unwrap to the original", tt.err)
		}
	}

	if FromLink(nil) != nil {
		t.Error("FromLink(nil) != nil")
	}
}

func TestFromErrorKeepsLinkError(t *testing.T) {
	orig := New("L203").WithField("key", "link.retry_delay")
	wrapped := fmt.Errorf("loading: %w", orig)
	if got := FromError(wrapped, "L000"); got != orig {
		t.Errorf("FromError() = %v, want the original LinkError", got)
	}
}

func TestLinkErrorError(t *testing.T) {
	err := New("L005")
	if got, want := err.Error(), "L005: Transmission error"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err2 := Newf(CategoryCLI, "unknown port %q", "serial")
	if got, want := err2.Error(), `unknown port "serial"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := FromLink(link.ErrModeTimeout).WithField("peer", "10.0.0.2:7420").WithField("timeout", "20s")
	out := err.Format()

	for _, want := range []string{
		"ERROR L001: Peer never entered multi-player mode",
		"peer     10.0.0.2:7420",
		"timeout  20s",
		"Cause: link: peers never entered multi-player mode",
		"Hint: Start the other end",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("L203").WithField("key", "sync.idle_interval")
	if got, want := err.FormatCompact(), "L203: Invalid config value key=sync.idle_interval"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("L102").WithField("peer", "1.0.0")
	got := err.FormatJSON()
	for _, want := range []string{`"code":"L102"`, `"category":"sync"`, `"fields":{"peer":"1.0.0"}`} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatJSON() = %s, missing %s", got, want)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q longer than 20", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") != nil")
	}
}

func TestRegistryCodesHaveCategories(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, _ := GetTemplate(code)
		if tmpl.Category == "" || tmpl.Message == "" {
			t.Errorf("%s has an empty category or message", code)
		}
	}
}
