package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeStatus struct {
	// have maps fields to their current coverage; absent means 0
	have  map[Field]int64
	total int64
}

func (f *fakeStatus) FieldCoverage(ctx context.Context, field Field) (int64, int64, error) {
	return f.have[field], f.total, nil
}

func stage(name string, requires, produces []Field, ran *[]string) Stage {
	return Stage{
		Name:     name,
		Requires: requires,
		Produces: produces,
		Run: func(ctx context.Context) (string, error) {
			*ran = append(*ran, name)
			return "ok", nil
		},
	}
}

func TestNewDriverRejectsMisorderedStages(t *testing.T) {
	var ran []string
	_, err := NewDriver(&fakeStatus{}, []Stage{
		stage("taxonomy", []Field{FieldSongStats}, []Field{FieldTaxonomy}, &ran),
		stage("aggregate", []Field{FieldWordSequence}, []Field{FieldSongStats}, &ran),
	})
	require.ErrorContains(t, err, `"taxonomy" requires "song_stats"`)
}

func TestRunExecutesInOrder(t *testing.T) {
	var ran []string
	status := &fakeStatus{
		have: map[Field]int64{
			FieldDictionary:   100,
			FieldWordSequence: 100,
			FieldSongStats:    100,
		},
		total: 100,
	}
	driver, err := NewDriver(status, []Stage{
		stage("words", nil, []Field{FieldDictionary}, &ran),
		stage("convert", []Field{FieldDictionary}, []Field{FieldWordSequence}, &ran),
		stage("aggregate", []Field{FieldWordSequence}, []Field{FieldSongStats}, &ran),
	})
	require.NoError(t, err)

	results, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"words", "convert", "aggregate"}, ran)
	require.Len(t, results, 3)
	require.Equal(t, "convert", results[1].Stage)
	require.Equal(t, "ok", results[1].Summary)
}

func TestRunStopsOnMissingPrerequisite(t *testing.T) {
	var ran []string
	// dictionary exists in the graph, word sequences do not
	status := &fakeStatus{
		have:  map[Field]int64{FieldDictionary: 100},
		total: 100,
	}
	driver, err := NewDriver(status, []Stage{
		stage("words", nil, []Field{FieldDictionary}, &ran),
		stage("convert", []Field{FieldDictionary}, []Field{FieldWordSequence}, &ran),
		stage("aggregate", []Field{FieldWordSequence}, []Field{FieldSongStats}, &ran),
	})
	require.NoError(t, err)

	results, err := driver.Run(context.Background())
	require.ErrorContains(t, err, `"aggregate" requires "word_sequence"`)
	require.Equal(t, []string{"words", "convert"}, ran)
	require.Len(t, results, 2)
}

func TestRunAbortsOnStageError(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	status := &fakeStatus{
		have:  map[Field]int64{FieldDictionary: 100},
		total: 100,
	}
	driver, err := NewDriver(status, []Stage{
		stage("words", nil, []Field{FieldDictionary}, &ran),
		{
			Name:     "convert",
			Requires: []Field{FieldDictionary},
			Produces: []Field{FieldWordSequence},
			Run: func(ctx context.Context) (string, error) {
				return "", boom
			},
		},
		stage("aggregate", []Field{FieldWordSequence}, []Field{FieldSongStats}, &ran),
	})
	require.NoError(t, err)

	results, err := driver.Run(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, `stage "convert"`)
	require.Equal(t, []string{"words"}, ran)
	require.Len(t, results, 1)
}
