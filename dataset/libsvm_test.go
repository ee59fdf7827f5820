// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {

	const text = `
+1 1:0.5 3:-1.25
-1 2:2.0
1 1:1.0 2:0.25 4:3.5

0 4:-0.5
`

	m, y, err := Parse(strings.NewReader(text))
	require.NoError(t, err)

	assert.Equal(t, 4, m.Rows)
	assert.Equal(t, 4, m.Cols)
	assert.Equal(t, 7, m.NNZ())
	assert.Equal(t, []float64{1, -1, 1, -1}, y)

	assert.Equal(t, []int{0, 2, 3, 6, 7}, m.RowPtr)
	assert.Equal(t, []int{0, 2, 1, 0, 1, 3, 3}, m.ColIdx)
	assert.Equal(t, []float64{0.5, -1.25, 2.0, 1.0, 0.25, 3.5, -0.5}, m.Val)
}

func TestParseErrors(t *testing.T) {

	cases := map[string]string{
		"empty":          "",
		"bad label":      "abc 1:2\n",
		"bad pair":       "+1 12\n",
		"bad index":      "+1 x:2\n",
		"bad value":      "+1 1:zz\n",
		"zero index":     "+1 0:1\n",
		"not increasing": "+1 3:1 2:1\n",
	}
	for name, text := range cases {
		_, _, err := Parse(strings.NewReader(text))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {

	path := filepath.Join(t.TempDir(), "train.libsvm")
	require.NoError(t, os.WriteFile(path, []byte("+1 1:1\n-1 2:1\n"), 0o644))

	m, y, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.Equal(t, []float64{1, -1}, y)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
