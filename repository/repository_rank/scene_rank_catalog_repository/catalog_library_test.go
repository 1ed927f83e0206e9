package scene_rank_catalog_repository

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/usecase/usecase_rank/scene_rank_core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalWAV 只有文件头、没有采样数据的 PCM WAV
func minimalWAV(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	write := func(v interface{}) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }

	buf.WriteString("RIFF")
	write(uint32(36))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1))     // PCM
	write(uint16(1))     // mono
	write(uint32(8000))  // sample rate
	write(uint32(16000)) // byte rate
	write(uint16(2))     // block align
	write(uint16(16))    // bits per sample
	buf.WriteString("data")
	write(uint32(0))
	return buf.Bytes()
}

func writeLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	wav := minimalWAV(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "road trip"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "road trip", "b side.wav"), wav, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "road trip", "a side.wav"), wav, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "road trip", "notes.txt"), []byte("not audio"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "loose.wav"), wav, 0o644))
	return root
}

func TestLibraryCatalog_GetSongs(t *testing.T) {
	root := writeLibrary(t)
	catalog := NewLibraryCatalog(root)

	songs, err := catalog.GetSongs(context.Background(), "road trip")
	require.NoError(t, err)
	require.Len(t, songs, 2)

	assert.Equal(t, "a side", songs[0].Title)
	assert.Equal(t, "b side", songs[1].Title)
	assert.Equal(t, songIDForPath("road trip/a side.wav"), songs[0].ID)
	assert.NotEqual(t, songs[0].ID, songs[1].ID)
	assert.NoError(t, scene_rank_core.ValidateSongs(songs))

	all, err := catalog.GetSongs(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	again, err := NewLibraryCatalog(root).GetSongs(context.Background(), "road trip")
	require.NoError(t, err)
	assert.Equal(t, songs[0].ID, again[0].ID, "ids are stable across scans")
}

func TestLibraryCatalog_RejectsUnknownOrEscapingPlaylists(t *testing.T) {
	catalog := NewLibraryCatalog(writeLibrary(t))

	for _, playlistID := range []string{"missing", "../", "../../etc", "loose.wav"} {
		_, err := catalog.GetSongs(context.Background(), playlistID)
		assert.ErrorIs(t, err, scene_rank_interface.ErrPlaylistNotFound, playlistID)
	}
}

func TestIsAudioFile(t *testing.T) {
	root := writeLibrary(t)
	assert.True(t, isAudioFile(filepath.Join(root, "loose.wav")))
	assert.False(t, isAudioFile(filepath.Join(root, "road trip", "notes.txt")))
	assert.False(t, isAudioFile(filepath.Join(root, "nope.wav")))
}
