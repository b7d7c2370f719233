package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
)

func TestEncodeDecode(t *testing.T) {
	r, err := newBuilder(t).Build("srv", weekMessages(), now)
	require.NoError(t, err)

	for _, f := range []Format{FormatJSON, FormatMsgpack} {
		t.Run(string(f), func(t *testing.T) {
			data, err := Encode(r, f)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			got, err := Decode(data, f)
			require.NoError(t, err)

			assert.Equal(t, r.ID, got.ID)
			assert.Equal(t, r.ServerID, got.ServerID)
			assert.True(t, r.WeekStart.Equal(got.WeekStart))
			assert.True(t, r.GeneratedAt.Equal(got.GeneratedAt))
			assert.Equal(t, r.TotalMessages, got.TotalMessages)
			assert.Equal(t, r.TopTopics, got.TopTopics)
			assert.Equal(t, r.ActiveMembers, got.ActiveMembers)
			assert.Equal(t, r.InfluentialMembers, got.InfluentialMembers)
			require.Len(t, got.DailyVolume, len(r.DailyVolume))
			for i := range r.DailyVolume {
				assert.True(t, r.DailyVolume[i].Day.Equal(got.DailyVolume[i].Day))
				assert.Equal(t, r.DailyVolume[i].Messages, got.DailyVolume[i].Messages)
			}
		})
	}
}

func TestJSONShape(t *testing.T) {
	r, err := newBuilder(t).Build("srv", weekMessages(), now)
	require.NoError(t, err)

	data, err := Encode(r, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"top_topics":[{"term":"machine learning","count":3,"phrase":true}`)
	assert.Contains(t, string(data), `"server_id":"srv"`)
}

func TestUnknownFormat(t *testing.T) {
	_, err := Encode(WeeklyReport{}, "xml")
	assert.ErrorIs(t, err, internalerr.ErrUnknownFormat)

	_, err = Decode(nil, "xml")
	assert.ErrorIs(t, err, internalerr.ErrUnknownFormat)

	_, err = ParseFormat("yaml")
	assert.ErrorIs(t, err, internalerr.ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, " msgpack ": FormatMsgpack} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	r, err := newBuilder(t).Build("srv", weekMessages(), now)
	require.NoError(t, err)

	rec, err := ToRecord(r, FormatMsgpack)
	require.NoError(t, err)
	assert.Equal(t, r.ID, rec.ID)
	assert.Equal(t, "msgpack", rec.Format)

	got, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, r.TopTopics, got.TopTopics)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"), FormatJSON)
	assert.Error(t, err)
}
