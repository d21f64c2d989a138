package subtitles_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"tunely/internal/services"
	"tunely/internal/styles"
	"tunely/internal/subtitles"
	"tunely/internal/timing"
)

func TestSerializeLayout(t *testing.T) {
	doc := buildFromWords(t, newDefaultBuilder(t), []timing.TimedWord{
		{Text: "Hello", Start: 1.0, End: 1.5, Speaker: "SPEAKER_00"},
		{Text: "world", Start: 1.6, End: 2.0, Speaker: "SPEAKER_00"},
	})
	data, err := subtitles.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	text := string(data)

	for _, want := range []string{
		"[Script Info]\n",
		"PlayResX: 1280\n",
		"PlayResY: 720\n",
		"[V4+ Styles]\n",
		"Style: Default,Arial,28,&H00FFFFFF,&H0000FFFF,&H00000000,&H80000000,-1,",
		"[Events]\n",
		"Dialogue: 0,0:00:01.00,0:00:02.00,Speaker1,,0,0,0,,{\\k50}Hello {\\k40}world\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	defaultAt := strings.Index(text, "Style: Default,")
	speakerAt := strings.Index(text, "Style: Speaker1,")
	if defaultAt < 0 || speakerAt < 0 || defaultAt > speakerAt {
		t.Fatalf("expected Default style first:\n%s", text)
	}
}

func TestSerializeFailsOnUndefinedStyle(t *testing.T) {
	set, _ := styles.NewSet(nil)
	doc := subtitles.NewDocument(set, 0, 0)
	doc.Events = append(doc.Events, subtitles.Event{Start: 0, End: 1, StyleID: "Missing", Text: "x"})

	var buf bytes.Buffer
	err := subtitles.Serialize(&buf, doc)
	if !errors.Is(err, services.ErrBuildInvariant) || !errors.Is(err, subtitles.ErrUndefinedStyle) {
		t.Fatalf("expected undefined style invariant violation, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}

func TestSerializeRequiresDefaultStyleFirst(t *testing.T) {
	specs := styles.DefaultSpecs()
	var defaultSpec, speaker styles.Spec
	for _, spec := range specs {
		switch spec.ID {
		case styles.DefaultID:
			defaultSpec = spec
		case "Speaker1":
			speaker = spec
		}
	}

	tests := []struct {
		name   string
		styles []styles.Spec
	}{
		{"no styles", nil},
		{"default missing", []styles.Spec{speaker}},
		{"default not first", []styles.Spec{speaker, defaultSpec}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := subtitles.Document{Styles: tt.styles}
			var buf bytes.Buffer
			err := subtitles.Serialize(&buf, doc)
			if !errors.Is(err, subtitles.ErrDefaultStyle) {
				t.Fatalf("expected ErrDefaultStyle, got %v", err)
			}
			if buf.Len() != 0 {
				t.Fatalf("expected nothing written, got %q", buf.String())
			}
		})
	}

	doubled := subtitles.Document{Styles: []styles.Spec{defaultSpec, speaker, defaultSpec}}
	if err := doubled.Validate(); err == nil {
		t.Fatal("expected a second Default style to be rejected")
	}

	ok := subtitles.Document{Styles: []styles.Spec{defaultSpec, speaker}}
	data, err := subtitles.Marshal(ok)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	text := string(data)
	if strings.Index(text, "Style: Default,") > strings.Index(text, "Style: Speaker1,") {
		t.Fatalf("expected Default style first:\n%s", text)
	}
}

func TestValidateRejectsRevealOverrun(t *testing.T) {
	set, _ := styles.NewSet(nil)
	doc := subtitles.NewDocument(set, 0, 0)
	doc.Events = []subtitles.Event{{Start: 0, End: 0.5, StyleID: styles.DefaultID, Text: `{\k80}too {\k10}long`}}
	if err := doc.Validate(); !errors.Is(err, subtitles.ErrRevealOverrun) {
		t.Fatalf("expected ErrRevealOverrun, got %v", err)
	}
	doc.Events[0].Text = `{\k25}fits {\k26}barely`
	if err := doc.Validate(); err != nil {
		t.Fatalf("rounding slack should be tolerated: %v", err)
	}
}

func TestSerializeParseSerializeIsStable(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		faker := gofakeit.New(seed)
		var words []timing.TimedWord
		cursor := 0.0
		for range faker.IntRange(1, 40) {
			start := cursor + faker.Float64Range(0.01, 0.5)
			end := start + faker.Float64Range(-0.05, 0.6)
			words = append(words, timing.TimedWord{
				Text:    faker.Word(),
				Start:   start,
				End:     end,
				Speaker: faker.RandomString([]string{"SPEAKER_00", "SPEAKER_01", "SPEAKER_07", timing.UnknownSpeaker}),
			})
			cursor = max(start, end)
		}
		doc := buildFromWords(t, newDefaultBuilder(t), words)

		first, err := subtitles.Marshal(doc)
		if err != nil {
			t.Fatalf("seed %d: Marshal returned error: %v", seed, err)
		}
		parsed, err := subtitles.Parse(bytes.NewReader(first))
		if err != nil {
			t.Fatalf("seed %d: Parse returned error: %v", seed, err)
		}
		second, err := subtitles.Marshal(parsed)
		if err != nil {
			t.Fatalf("seed %d: re-Marshal returned error: %v", seed, err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("seed %d: serialization not stable\nfirst:\n%s\nsecond:\n%s", seed, first, second)
		}
		if len(parsed.Events) != len(doc.Events) || len(parsed.Styles) != len(doc.Styles) {
			t.Fatalf("seed %d: parsed counts differ", seed)
		}
	}
}

func TestWriteFileUsesBOMAndKeepsUnicode(t *testing.T) {
	doc := buildFromWords(t, newDefaultBuilder(t), []timing.TimedWord{
		{Text: "नमस्ते", Start: 0.5, End: 1.2, Speaker: "SPEAKER_01"},
		{Text: "दुनिया", Start: 1.3, End: 2.0, Speaker: "SPEAKER_01"},
	})
	path := filepath.Join(t.TempDir(), "out", "req.ass")
	if err := subtitles.WriteFile(path, doc); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read subtitle file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("expected UTF-8 BOM, got % x", data[:3])
	}
	parsed, err := subtitles.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if parsed.Events[0].Text != `{\k70}नमस्ते {\k70}दुनिया` {
		t.Fatalf("unexpected parsed text %q", parsed.Events[0].Text)
	}
	if parsed.Events[0].StyleID != "Speaker2" {
		t.Fatalf("unexpected style %q", parsed.Events[0].StyleID)
	}
}

func TestParseRejectsMalformedLines(t *testing.T) {
	input := "[Events]\nDialogue: 0,bad,0:00:01.00,Default,,0,0,0,,x\n"
	if _, err := subtitles.Parse(strings.NewReader(input)); err == nil {
		t.Fatal("expected timestamp error")
	}
	input = "[V4+ Styles]\nStyle: Default,Arial\n"
	if _, err := subtitles.Parse(strings.NewReader(input)); err == nil {
		t.Fatal("expected style field count error")
	}
}
