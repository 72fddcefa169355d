package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	quiet := New(&buf, false)
	quiet.Info("hidden")
	quiet.Warn("shown", "list", "inbox")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "level=WARN msg=shown list=inbox")

	buf.Reset()
	New(&buf, true).Debug("detail")
	require.Contains(t, buf.String(), "level=DEBUG msg=detail")
}
