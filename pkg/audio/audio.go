// Dopamine Lottery
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Dopamine Lottery.
//
// Dopamine Lottery is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Dopamine Lottery is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Dopamine Lottery.  If not, see <http://www.gnu.org/licenses/>.

// Package audio plays the tone cues and custom sound files that
// accompany earning chances and drawing the lottery.
package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/dopamine-lottery/pkg/helpers/syncutil"
	"github.com/gen2brain/malgo"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
)

// SampleRate is the output rate of the playback device.
const SampleRate = beep.SampleRate(48000)

// Player is the interface for audio playback, allowing tests to mock sound output.
type Player interface {
	PlayCue(c Cue) error
	PlayFile(path string) error
	ClearFileCache()
}

// MalgoPlayer implements Player using malgo for real audio hardware output.
type MalgoPlayer struct {
	currentCancel context.CancelFunc
	fileCache     map[string][]byte
	playbackGen   uint64
	fileCacheMu   syncutil.RWMutex
	playbackMu    syncutil.Mutex
}

// NewMalgoPlayer creates a new MalgoPlayer instance.
func NewMalgoPlayer() *MalgoPlayer {
	return &MalgoPlayer{
		fileCache: make(map[string][]byte),
	}
}

// start cancels whatever is playing and plays streamer in the background.
// cleanup runs once playback ends or is cut short.
func (p *MalgoPlayer) start(streamer beep.Streamer, cleanup func(), desc string) {
	p.playbackMu.Lock()
	if p.currentCancel != nil {
		p.currentCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.currentCancel = cancel
	p.playbackGen++
	thisGen := p.playbackGen
	p.playbackMu.Unlock()

	go func() {
		defer func() {
			if cleanup != nil {
				cleanup()
			}
			p.playbackMu.Lock()
			if p.playbackGen == thisGen {
				p.currentCancel = nil
			}
			p.playbackMu.Unlock()
			cancel()
		}()

		if err := playWithMalgo(ctx, streamer); err != nil {
			if !errors.Is(ctx.Err(), context.Canceled) {
				log.Warn().Err(err).Msg("failed to play audio")
			}
			return
		}

		log.Debug().Str("sound", desc).Msg("completed audio playback")
	}()
}

// PlayCue synthesises a tone cue and plays it asynchronously.
func (p *MalgoPlayer) PlayCue(c Cue) error {
	streamer, err := c.Streamer(SampleRate)
	if err != nil {
		return err
	}
	p.start(streamer, nil, c.Name)
	return nil
}

// PlayFile plays an audio file asynchronously, detecting format by extension.
// Supports WAV, MP3, OGG (Vorbis), and FLAC. Cancels any currently playing sound.
// File bytes are cached per-instance to avoid repeated disk reads for the same path.
func (p *MalgoPlayer) PlayFile(path string) error {
	data, err := p.readFileWithCache(path)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	streamer, format, err := decode(path, data)
	if err != nil {
		return err
	}

	resampled := beep.Resample(4, format.SampleRate, SampleRate, streamer)

	p.start(resampled, func() {
		if err := streamer.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close audio streamer")
		}
	}, path)

	return nil
}

func decode(path string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	case ".mp3":
		streamer, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	case ".ogg":
		streamer, format, err = vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	case ".flac":
		streamer, format, err = flac.Decode(bytes.NewReader(data))
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s (supported: .wav, .mp3, .ogg, .flac)", ext)
	}

	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode audio file: %w", err)
	}
	return streamer, format, nil
}

// readFileWithCache returns file bytes, using an in-memory cache to avoid
// repeated disk reads for sounds that play on every chance.
func (p *MalgoPlayer) readFileWithCache(path string) ([]byte, error) {
	p.fileCacheMu.RLock()
	if cached, ok := p.fileCache[path]; ok {
		p.fileCacheMu.RUnlock()
		return cached, nil
	}
	p.fileCacheMu.RUnlock()

	//nolint:gosec // G304: path comes from the user's own config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	p.fileCacheMu.Lock()
	p.fileCache[path] = data
	p.fileCacheMu.Unlock()

	return data, nil
}

// ClearFileCache clears the in-memory file cache, forcing subsequent PlayFile
// calls to re-read from disk. Called after a config reload to pick up new files.
func (p *MalgoPlayer) ClearFileCache() {
	p.fileCacheMu.Lock()
	defer p.fileCacheMu.Unlock()
	p.fileCache = make(map[string][]byte)
}

// playWithMalgo plays audio samples through malgo, blocking until complete or ctx is cancelled.
func playWithMalgo(ctx context.Context, streamer beep.Streamer) error {
	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	if malgoCtx == nil {
		return errors.New("malgo context is nil after initialization")
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	// F32 format avoids buggy S16->S32 conversion in miniaudio on PulseAudio
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = 2
	deviceConfig.SampleRate = uint32(SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	done := make(chan struct{})

	var (
		mu       syncutil.Mutex
		finished bool
		samples  [][2]float64
	)

	onSamples := func(pOutputSample, _ []byte, frameCount uint32) {
		mu.Lock()
		defer mu.Unlock()

		if finished {
			return
		}

		select {
		case <-ctx.Done():
			finished = true
			close(done)
			return
		default:
		}

		if len(samples) < int(frameCount) {
			samples = make([][2]float64, frameCount)
		}

		n, ok := streamer.Stream(samples[:frameCount])
		if !ok || n == 0 {
			finished = true
			close(done)
			return
		}

		offset := 0
		for i := range n {
			binary.LittleEndian.PutUint32(pOutputSample[offset:], math.Float32bits(float32(samples[i][0])))
			offset += 4
			binary.LittleEndian.PutUint32(pOutputSample[offset:], math.Float32bits(float32(samples[i][1])))
			offset += 4
		}

		for i := offset; i < len(pOutputSample); i++ {
			pOutputSample[i] = 0
		}
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize audio device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("failed to start audio device: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		mu.Lock()
		finished = true
		mu.Unlock()
	}

	if err := device.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop audio device")
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}

	return nil
}
