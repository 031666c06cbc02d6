// Package meta extracts track metadata and filename identity from media files.
package meta

import (
	"context"
	"errors"
	"time"
)

// ErrNoVideoTrack indicates the container was readable but holds no video
// stream. Callers distinguish this from probe failures with errors.Is.
var ErrNoVideoTrack = errors.New("no video track")

// TrackInfo holds the attributes of the first video and audio tracks
type TrackInfo struct {
	Width         int
	Height        int
	Codec         string
	Bitrate       int64 // bits per second
	DurationSecs  float64
	AudioCodec    string
	AudioChannels int
	AudioLanguage string
}

// Extractor probes media containers for track metadata
type Extractor struct {
	timeout time.Duration
}

// Config holds extractor configuration
type Config struct {
	// ProbeTimeout bounds a single probe; zero means the default (30s)
	ProbeTimeout time.Duration
}

// New creates a new metadata extractor
func New(cfg *Config) *Extractor {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Extractor{timeout: timeout}
}

// Extract probes the file at path and returns its track metadata.
// Returns ErrNoVideoTrack when the container has no video stream.
func (e *Extractor) Extract(ctx context.Context, path string) (*TrackInfo, error) {
	probeCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	info, err := RunFFprobe(probeCtx, path)
	if err != nil {
		return nil, err
	}

	return trackInfoFromProbe(info)
}

// trackInfoFromProbe selects the first video and first audio stream in
// declaration order; later streams of the same kind are ignored.
func trackInfoFromProbe(info *FFprobeInfo) (*TrackInfo, error) {
	var video, audio *FFprobeStream

	for i := range info.Streams {
		s := &info.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if audio == nil {
				audio = s
			}
		}
	}

	if video == nil {
		return nil, ErrNoVideoTrack
	}

	t := &TrackInfo{
		Width:        video.Width,
		Height:       video.Height,
		Codec:        video.CodecName,
		Bitrate:      parseBitrate(video.BitRate),
		DurationSecs: parseSeconds(video.Duration),
	}

	// Matroska rarely carries per-stream rates; fall back to the container
	if info.Format != nil {
		if t.Bitrate == 0 {
			t.Bitrate = parseBitrate(info.Format.BitRate)
		}
		if t.DurationSecs == 0 {
			t.DurationSecs = parseSeconds(info.Format.Duration)
		}
	}

	if audio != nil {
		t.AudioCodec = audio.CodecName
		t.AudioChannels = audio.Channels
		if audio.Tags != nil {
			t.AudioLanguage = audio.Tags["language"]
		}
	}

	return t, nil
}
