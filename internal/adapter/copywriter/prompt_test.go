package copywriter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prodpix/prodpix/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	req := domain.CopyRequest{
		Platform:    domain.PlatformAmazon,
		ProductName: "Ceramic Pour-Over Kettle",
		Features:    []string{"gooseneck spout", "1L capacity"},
		Tone:        "professional",
	}

	prompt := buildPrompt(req)

	require.Contains(t, prompt, "Amazon")
	require.Contains(t, prompt, "Ceramic Pour-Over Kettle")
	require.Contains(t, prompt, "gooseneck spout")
	require.Contains(t, prompt, "Tone: professional")
	require.Contains(t, prompt, "Language: English")
	require.Contains(t, prompt, `"title"`)
}

func TestBuildPrompt_ExplicitLanguage(t *testing.T) {
	prompt := buildPrompt(domain.CopyRequest{
		Platform:    domain.PlatformTikTok,
		ProductName: "LED Strip",
		Language:    "German",
	})

	require.Contains(t, prompt, "Language: German")
	require.Contains(t, prompt, "hashtags")
	require.NotContains(t, prompt, "Tone:")
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain json untouched",
			in:   `{"title": "x"}`,
			want: `{"title": "x"}`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"title\": \"x\"}\n```",
			want: `{"title": "x"}`,
		},
		{
			name: "bare fence",
			in:   "```\n{\"title\": \"x\"}\n```",
			want: `{"title": "x"}`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n{\"title\": \"x\"}\n  ",
			want: `{"title": "x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}
