package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToUTF8(t *testing.T) {
	t.Parallel()

	latin1 := []byte("<html><head><meta charset=\"iso-8859-1\"></head><body>na\xefve</body></html>")
	require.Contains(t, string(ToUTF8(latin1, "text/html")), "naïve")

	utf8 := []byte("<html><body>naïve</body></html>")
	require.Equal(t, utf8, ToUTF8(utf8, "text/html; charset=utf-8"))
	require.Empty(t, ToUTF8(nil, ""))
}

func TestParseAxeViolations(t *testing.T) {
	t.Parallel()

	v, err := ParseAxeViolations(`[{"id":"image-alt","impact":"critical","help":"Images must have alternate text","nodes":3}]`)
	require.NoError(t, err)
	require.Len(t, v, 1)
	require.Equal(t, "image-alt", v[0].ID)
	require.Equal(t, 3, v[0].Nodes)

	_, err = ParseAxeViolations("not json")
	require.Error(t, err)

	require.Contains(t, AxeScript(`https://cdn.example.com/axe.min.js`), `"https://cdn.example.com/axe.min.js"`)
}

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	unlimited := NewDomainLimiter(0)
	require.NoError(t, unlimited.Wait(context.Background(), "https://example.com"))

	l := NewDomainLimiter(1)
	require.NoError(t, l.Wait(context.Background(), "https://example.com/a"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx, "https://example.com/b"))

	// Other hosts have their own bucket.
	require.NoError(t, l.Wait(context.Background(), "https://other.example"))
}
