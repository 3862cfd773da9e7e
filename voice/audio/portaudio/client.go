//go:build cgo

// Package portaudio is the PortAudio-backed capture client. Unlike the
// miniaudio client it reads floating point frames from the device and scales
// them to linear16 itself.
package portaudio

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/waypointhq/waypoint-core/voice/audio"
)

type Client struct {
	bufferSize int
	stream     *portaudio.Stream
	meter      *audio.LevelMeter

	in []float32

	capturing atomic.Bool
}

func NewClient(bufferSize int) (*Client, error) {
	if bufferSize <= 0 {
		bufferSize = audio.DefaultChunkFrames
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	in := make([]float32, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, audio.DefaultSampleRate, bufferSize, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio stream: %w", err)
	}

	return &Client{
		bufferSize: bufferSize,
		stream:     stream,
		meter:      audio.NewLevelMeter(bufferSize),
		in:         in,
	}, nil
}

func (c *Client) StartCapture(ctx context.Context, onChunk func([]byte), onLevel func(int)) error {
	if !c.capturing.CompareAndSwap(false, true) {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		c.capturing.Store(false)
		return fmt.Errorf("failed to start PortAudio stream: %w", err)
	}

	go func() {
		for c.capturing.Load() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := c.stream.Read(); err != nil {
				log.Printf("Failed to read from PortAudio stream: %v", err)
				continue
			}

			pcm := audio.Float32ToPCM16(c.in)
			if onLevel != nil {
				onLevel(c.meter.Level(pcm))
			}
			if onChunk != nil {
				onChunk(audio.PCM16Bytes(pcm))
			}
		}
	}()

	return nil
}

func (c *Client) StopCapture() error {
	if !c.capturing.CompareAndSwap(true, false) {
		return nil
	}

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop PortAudio stream: %w", err)
	}
	return nil
}

func (c *Client) Close() {
	c.capturing.Store(false)
	c.stream.Close()
	portaudio.Terminate()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
