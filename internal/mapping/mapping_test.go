package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/stopoverdispatch/internal/detect"
)

func TestResolve(t *testing.T) {
	table := Table{"CDG": {"ops@cdg.example", "chef@cdg.example"}}

	assert.Equal(t, []string{"ops@cdg.example", "chef@cdg.example"}, Resolve("CDG", table))
	assert.Empty(t, Resolve("cdg", table), "lookup is case-sensitive")
	assert.Empty(t, Resolve("ORY", table))
	assert.Empty(t, Resolve("CDG", Table{}))
	assert.Empty(t, Resolve("CDG", nil))
}

func TestResolve_ReturnsCopy(t *testing.T) {
	table := Table{"CDG": {"a@x"}}
	got := Resolve("CDG", table)
	got[0] = "changed"
	assert.Equal(t, "a@x", table["CDG"][0])
}

func TestSplitJoin(t *testing.T) {
	entries := []string{"a@x", "__CC__:b@x", " __BCC__: c@x ", "", "__CC__:", "d@x"}
	r := Split(entries)
	assert.Equal(t, []string{"a@x", "d@x"}, r.To)
	assert.Equal(t, []string{"b@x"}, r.CC)
	assert.Equal(t, []string{"c@x"}, r.BCC)

	assert.Equal(t, []string{"a@x", "d@x", "__CC__:b@x", "__BCC__:c@x"}, Join(r))
}

func TestUnmapped(t *testing.T) {
	table := Table{"CDG": {"a@x"}, "NCE": {"__BCC__:n@x"}, "ORY": {}}
	found := []detect.Stopover{
		{Code: "ORY", PageIndex: 0},
		{Code: "CDG", PageIndex: 1},
		{Code: "LYS", PageIndex: 2},
		{Code: "ORY", PageIndex: 3},
		{Code: "NCE", PageIndex: 4},
	}
	assert.Equal(t, []string{"ORY", "LYS"}, Unmapped(found, table))
	assert.Empty(t, Unmapped(nil, table))
}

func TestNormalizeCode(t *testing.T) {
	c, err := NormalizeCode(" cdg ")
	require.NoError(t, err)
	assert.Equal(t, "CDG", c)

	for _, bad := range []string{"", "CD", "CDGX", "C1G", "ÉTÉ"} {
		_, err := NormalizeCode(bad)
		assert.ErrorIs(t, err, ErrInvalidCode, bad)
	}
}

func TestNormalizeAddresses(t *testing.T) {
	got := NormalizeAddresses([]string{" a@x ", "", "b@x", "a@x"})
	assert.Equal(t, []string{"a@x", "b@x"}, got)
}

func TestClone(t *testing.T) {
	orig := Table{"CDG": {"a@x"}}
	c := orig.Clone()
	c["CDG"][0] = "z@x"
	c["ORY"] = []string{"o@x"}
	assert.Equal(t, Table{"CDG": {"a@x"}}, orig)
}
