package dal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSongIDs_AddRemove(t *testing.T) {
	var ids SongIDs

	assert.True(t, ids.Add(3))
	assert.True(t, ids.Add(1))
	assert.False(t, ids.Add(3))
	assert.Equal(t, SongIDs{3, 1}, ids)

	assert.True(t, ids.Add(2))
	assert.True(t, ids.Remove(1))
	assert.False(t, ids.Remove(1))
	assert.Equal(t, SongIDs{3, 2}, ids)
}

func TestSongIDs_Scan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    SongIDs
		wantErr bool
	}{
		{name: "string", src: "[1,2,3]", want: SongIDs{1, 2, 3}},
		{name: "bytes", src: []byte("[5]"), want: SongIDs{5}},
		{name: "nil", src: nil, want: SongIDs{}},
		{name: "duplicates dropped", src: "[2,1,2]", want: SongIDs{2, 1}},
		{name: "not json", src: "1,2", wantErr: true},
		{name: "wrong type", src: 12, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got SongIDs
			err := got.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSongIDs_ValueNil(t *testing.T) {
	v, err := SongIDs(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestDifficulty_Valid(t *testing.T) {
	assert.True(t, DifficultyIntermediate.Valid())
	assert.False(t, Difficulty("expert").Valid())
}
