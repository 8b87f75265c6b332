package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusTitle(t *testing.T) {
	assert.Equal(t, "Running", statusTitle("running"))
	assert.Equal(t, "Stopped", statusTitle("stopped"))
	assert.Equal(t, "", statusTitle(""))
}

func TestFormatTime(t *testing.T) {
	now := time.Now()

	sameYear := time.Date(now.Year(), time.March, 5, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "Mar  5 14:30", formatTime(sameYear))

	lastYear := time.Date(now.Year()-1, time.March, 5, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, lastYear.Format("Jan _2  2006"), formatTime(lastYear))
	assert.NotContains(t, formatTime(lastYear), "14:30")
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf,
		[]string{"NAME", "STATUS"},
		[][]string{
			{"Aurora", "running"},
			{"B", "up"},
		},
	)

	want := "NAME    STATUS\n" +
		"Aurora  running\n" +
		"B       up\n"
	assert.Equal(t, want, buf.String())
}

func TestPrintTable_NoRows(t *testing.T) {
	var buf bytes.Buffer

	printTable(&buf, []string{"NAME", "STATUS"}, nil)
	assert.Equal(t, "NAME  STATUS\n", buf.String())
}
