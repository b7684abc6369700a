package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingReturnsDefault(t *testing.T) {
	s := New("", NewMemory())
	assert.Equal(t, DefaultDomain, s.Domain())
	assert.Equal(t, "smart", Read(s, KeyAIConfig, "smart"))
	assert.Equal(t, 1.0, Read(s, KeyVoiceSpeakingRate, 1.0))
}

func TestWriteUsesCompatibleLayout(t *testing.T) {
	mem := NewMemory()
	s := New("com.example.pv", mem)

	require.NoError(t, Write(s, KeyCheckedLanguages, []string{"englishWithQWERYKeyboard"}))

	raw, ok, err := mem.Get("com.example.pv.checkedLanguages")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"value":["englishWithQWERYKeyboard"]}`, string(raw))

	assert.Equal(t, []string{"englishWithQWERYKeyboard"}, Read[[]string](s, KeyCheckedLanguages, nil))
	assert.Equal(t, []string{"com.example.pv.checkedLanguages"}, mem.Keys("com.example.pv."))
}

func TestBrokenValuesFallBack(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{value: true`},
		{"wrong type", `{"value": "yes"}`},
		{"bare value", `true`},
		{"empty envelope", `{}`},
		{"null value", `{"value": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemory()
			require.NoError(t, mem.Set("d.enableEarcons", []byte(tt.raw)))
			s := New("d", mem)
			assert.True(t, Read(s, KeyEnableEarcons, true))
		})
	}
}

func TestEmptyEnvelopeKeepsSliceDefault(t *testing.T) {
	for _, raw := range []string{`{}`, `{"value":null}`} {
		mem := NewMemory()
		require.NoError(t, mem.Set("d.checkedLanguages", []byte(raw)))
		s := New("d", mem)
		assert.Equal(t, []string{"def"}, Read(s, KeyCheckedLanguages, []string{"def"}), raw)
	}
}

func TestDomainsAreIsolated(t *testing.T) {
	mem := NewMemory()
	a, b := New("a", mem), New("b", mem)
	require.NoError(t, Write(a, KeyPersona, "retired nurse"))
	assert.Equal(t, "", Read(b, KeyPersona, ""))
	assert.Equal(t, "retired nurse", Read(a, KeyPersona, ""))
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)

	s := New("pv", db)
	require.NoError(t, Write(s, KeyVoicePitch, 1.5))
	require.NoError(t, Write(s, KeyVoicePitch, 0.5))
	require.NoError(t, Write(s, KeyPersona, "I like trains"))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	s = New("pv", db)
	assert.Equal(t, 0.5, Read(s, KeyVoicePitch, 1.0))
	assert.Equal(t, "I like trains", Read(s, KeyPersona, ""))

	keys, err := db.Keys("pv.")
	require.NoError(t, err)
	assert.Equal(t, []string{"pv.persona", "pv.voicePitch"}, keys)

	_, ok, err := db.Get("pv.missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteInMemory(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	s := New("", db)
	require.NoError(t, Write(s, KeyEnableEarcons, true))
	assert.True(t, Read(s, KeyEnableEarcons, false))
}
