package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		SetLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestNew_JSONAndPretty(t *testing.T) {
	var js bytes.Buffer
	lg := New(&js, false)
	lg.Info().Str("kind", "generic").Msg("mapped")
	out := js.String()
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"kind":"generic"`) || !strings.Contains(out, `"time":`) {
		t.Fatalf("unexpected JSON output: %s", out)
	}

	var pretty bytes.Buffer
	lg = New(&pretty, true)
	lg.Info().Msg("mapped")
	if strings.HasPrefix(pretty.String(), "{") || !strings.Contains(pretty.String(), "mapped") {
		t.Fatalf("unexpected console output: %s", pretty.String())
	}
}

func TestSetup_ReplacesGlobalLogger(t *testing.T) {
	origLevel := zerolog.GlobalLevel()
	origLogger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		log.Logger = origLogger
	})

	Setup("debug", false)
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("level not applied")
	}
}
