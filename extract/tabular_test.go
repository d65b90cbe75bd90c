package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabular_CSV(t *testing.T) {
	data := "id,name,comment\n1,Ana,likes group work\n2,Bo,\n\n3,\"Cy, Jr.\",\"said \"\"hi\"\"\"\n"

	text, err := TabularExtractor{}.Extract(context.Background(), "survey.csv", []byte(data))
	require.NoError(t, err)
	assert.Equal(t,
		"1: id=1, name=Ana, comment=likes group work\n<SEP>\n"+
			"2: id=2, name=Bo\n<SEP>\n"+
			"3: id=3, name=Cy, Jr., comment=said \"hi\"\n<SEP>\n",
		text)
}

func TestTabular_TSV(t *testing.T) {
	data := "id\tanswer\nq1\tmore time\nq2\n"

	text, err := TabularExtractor{}.Extract(context.Background(), "export.TSV", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, "q1: id=q1, answer=more time\n<SEP>\nq2: id=q2\n<SEP>\n", text)
}

func TestTabular_EmptyCSV(t *testing.T) {
	_, err := TabularExtractor{}.Extract(context.Background(), "empty.csv", nil)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestTabular_JSONArray(t *testing.T) {
	data := `[{"id": "r1", "score": 3, "tags": ["a", "b"], "note": ""}, {"name": "x"}, 5]`

	text, err := TabularExtractor{}.Extract(context.Background(), "rows.json", []byte(data))
	require.NoError(t, err)
	assert.Equal(t,
		"r1: id=r1, score=3, tags=[\"a\",\"b\"]\n<SEP>\n"+
			"x: name=x\n<SEP>\n",
		text)
}

func TestTabular_JSONObject(t *testing.T) {
	text, err := TabularExtractor{}.Extract(context.Background(), "one.json", []byte(`{"title": "Survey", "missing": null}`))
	require.NoError(t, err)
	assert.Equal(t, "root: missing=null, title=Survey\n<SEP>\n", text)
}

func TestTabular_JSONInvalid(t *testing.T) {
	_, err := TabularExtractor{}.Extract(context.Background(), "bad.json", []byte(`{"title":`))
	assert.Error(t, err)

	_, err = TabularExtractor{}.Extract(context.Background(), "scalar.json", []byte(`5`))
	assert.Error(t, err)
}

func TestTabular_YAML(t *testing.T) {
	data := "- id: 1\n  answer: more time\n- id: 2\n  answer: smaller classes\n"

	text, err := TabularExtractor{}.Extract(context.Background(), "rows.yaml", []byte(data))
	require.NoError(t, err)
	assert.Equal(t,
		"1: answer=more time, id=1\n<SEP>\n"+
			"2: answer=smaller classes, id=2\n<SEP>\n",
		text)
}

func TestTabular_Spreadsheets(t *testing.T) {
	for _, name := range []string{"book.xlsx", "book.xls", "book.ods"} {
		_, err := TabularExtractor{}.Extract(context.Background(), name, []byte("PK"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}
