package encoding

import (
	"strconv"
	"strings"
)

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// SubtitleFilter returns the -vf value that burns the ASS track at path.
// The path is escaped for the option parser and then for the filtergraph
// parser, since ffmpeg unescapes both levels.
func SubtitleFilter(path string) string {
	return "subtitles=filename=" + graphEscaper.Replace(optionEscaper.Replace(path))
}

// BuildArgs assembles the ffmpeg argument vector. With a background the video
// loops until the instrumental ends; without one a flat color canvas is
// synthesized at the preset resolution.
func BuildArgs(p Preset, req Request, outputPath string, useBackground bool) []string {
	args := []string{"-hide_banner", "-nostdin"}
	if useBackground {
		args = append(args, "-stream_loop", "-1", "-i", req.BackgroundPath)
	} else {
		args = append(args, "-f", "lavfi", "-i", "color=c="+p.BackgroundColor+":s="+p.Resolution())
	}
	args = append(args,
		"-i", req.AudioPath,
		"-vf", SubtitleFilter(req.SubtitlePath),
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", p.VideoCodec,
		"-preset", p.Speed,
		"-crf", strconv.Itoa(p.CRF),
		"-c:a", p.AudioCodec,
		"-b:a", p.AudioBitrate,
		"-shortest",
		"-y", outputPath,
	)
	return args
}
