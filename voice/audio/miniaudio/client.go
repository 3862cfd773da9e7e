//go:build cgo

// Package miniaudio captures microphone audio through malgo, delivering
// fixed-size linear16 chunks at the recognition pipeline's target rate.
package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/waypointhq/waypoint-core/voice/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	meter   *audio.LevelMeter
	pending []byte

	onChunk func(chunk []byte)
	onLevel func(level int)

	mu sync.Mutex
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio context: %w", err)
	}

	client := Client{
		audioContext: audioCtx,
		meter:        audio.NewLevelMeter(audio.DefaultChunkFrames),
	}

	if err := client.init(); err != nil {
		client.Close()
		return nil, err
	}

	return &client, nil
}

func (c *Client) init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	format := malgo.FormatS16
	channels := 1
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = uint32(audio.DefaultSampleRate)
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = audio.DefaultChunkFrames
	c.config.Periods = 3

	var err error
	c.device, err = malgo.InitDevice(c.audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.consume(pInput[:n])
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return nil
}

// consume regroups whatever period size the backend delivers into exact
// DefaultChunkFrames chunks so downstream framing stays fixed-cadence.
func (c *Client) consume(data []byte) {
	c.mu.Lock()
	onChunk := c.onChunk
	onLevel := c.onLevel
	c.pending = append(c.pending, data...)

	chunkBytes := audio.DefaultChunkFrames * 2
	var chunks [][]byte
	for len(c.pending) >= chunkBytes {
		chunk := make([]byte, chunkBytes)
		copy(chunk, c.pending[:chunkBytes])
		c.pending = c.pending[chunkBytes:]
		chunks = append(chunks, chunk)
	}
	c.mu.Unlock()

	for _, chunk := range chunks {
		if onLevel != nil {
			onLevel(c.meter.Level(audio.ParsePCM16(chunk)))
		}
		if onChunk != nil {
			onChunk(chunk)
		}
	}
}

func (c *Client) StartCapture(_ context.Context, onChunk func([]byte), onLevel func(int)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if c.device.IsStarted() {
		return nil
	}

	c.pending = c.pending[:0]
	c.onChunk = onChunk
	c.onLevel = onLevel

	if err := c.device.Start(); err != nil {
		c.onChunk = nil
		c.onLevel = nil
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	return nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	} else if !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop device: %w", err)
	}

	c.onChunk = nil
	c.onLevel = nil
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.onChunk = nil
	c.onLevel = nil

	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}
