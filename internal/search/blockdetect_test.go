package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlockedPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			"sorry page",
			`<html><body>Our systems have detected unusual traffic from your computer network.</body></html>`,
			true,
		},
		{
			"captcha form",
			`<html><body><form id="captcha-form" action="/sorry/index"></form></body></html>`,
			true,
		},
		{
			"consent interstitial",
			`<html><head><title>Before you continue to Google</title></head></html>`,
			true,
		},
		{
			"result page",
			`<html><body><div id="search"><div class="g"><h3>Acme</h3></div></div></body></html>`,
			false,
		},
		{
			"empty",
			"",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsBlockedPage(tt.html))
		})
	}
}
