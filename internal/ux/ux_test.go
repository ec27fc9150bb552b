package ux

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/ipes/internal/attachment"
	"github.com/jorge-barreto/ipes/internal/document"
)

func init() {
	color.NoColor = true
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	Error(&buf, errors.New("boom"))
	assert.Equal(t, "error: boom\n", buf.String())
}

func TestRenderInfo(t *testing.T) {
	d := document.New()
	d.ID = 99
	d.FileVersion = 150
	d.Components = []document.Component{
		document.NewRaw(document.PowerElement, 1, 1, "R1"),
		document.NewRaw(document.PowerElement, 1, 2, "R2"),
		document.NewRaw(document.ControlElement, 40, 3, "K"),
	}
	d.Parameters = []document.Parameter{{Name: "gain", Value: 2}}
	report := &document.Report{Warnings: []error{errors.New("dt: cannot read")}}

	var buf bytes.Buffer
	RenderInfo(&buf, "/m/model.ipes", d, report, 201)
	out := buf.String()
	assert.Contains(t, out, "Model: /m/model.ipes")
	assert.Contains(t, out, "150 (legacy)")
	assert.Contains(t, out, "e                    2")
	assert.Contains(t, out, "c                    1")
	assert.Contains(t, out, "gain")
	assert.Contains(t, out, "⚠ dt: cannot read")
}

func TestAttachmentTable(t *testing.T) {
	d := document.New()
	r1 := document.NewRaw(document.PowerElement, 1, 7, "R1")
	d.Components = []document.Component{r1}
	a := d.Attachments.Add(attachment.NewEmbedded("/m/loss.dat", []byte("x"), "/m/model.ipes"))
	a.AddUser(r1.ID())
	d.Attachments.Add(attachment.NewEmbedded("/m/old.dat", nil, "/m/model.ipes"))
	lib := d.Attachments.Add(attachment.NewEmbedded("/m/Lib.java", []byte("class Lib {}"), "/m/model.ipes"))
	require.NoError(t, d.UseInScript(lib.Hash()))

	var buf bytes.Buffer
	AttachmentTable(&buf, d)
	out := buf.String()
	assert.Contains(t, out, "loss.dat")
	assert.Contains(t, out, "R1")
	assert.Contains(t, out, "unused")
	assert.Contains(t, out, "script")
	assert.Equal(t, 1, strings.Count(out, "unused"))
	assert.Contains(t, out, "embedded")
}
