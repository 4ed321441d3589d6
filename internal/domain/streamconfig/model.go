package streamconfig

import (
	"fmt"
	"net"
	"strconv"
)

// StreamConfig is the persisted parameter record of the camera streaming unit.
// It is always fully populated; see Defaults.
type StreamConfig struct {
	Bitrate     int     `json:"bitrate"`      // bits/s
	Denoise     string  `json:"denoise"`      //
	Codec       string  `json:"codec"`        //
	LibavFormat string  `json:"libav_format"` //
	Profile     string  `json:"profile"`      //
	HDR         string  `json:"hdr"`          //
	Level       string  `json:"level"`        //
	Framerate   int     `json:"framerate"`    //
	Width       int     `json:"width"`        //
	Height      int     `json:"height"`       //
	Intra       int     `json:"intra"`        // keyframe period (frames)
	AVSync      int     `json:"av_sync"`      // microseconds
	AWB         string  `json:"awb"`          //
	RTSPHost    string  `json:"rtsp_host"`    // empty => LAN address
	RTSPPort    int     `json:"rtsp_port"`    //
	RTSPPath    string  `json:"rtsp_path"`    //
	Nice        int     `json:"nice"`         // scheduling priority of the streamer process
	Sharpness   float64 `json:"sharpness"`    //
	Contrast    float64 `json:"contrast"`     //
	Brightness  float64 `json:"brightness"`   //
	Saturation  float64 `json:"saturation"`   //
	Exposure    string  `json:"exposure"`     //
}

// Defaults returns the canonical default record.
func Defaults() StreamConfig {
	return StreamConfig{
		Bitrate:     6000000,
		Denoise:     "auto",
		Codec:       "libav",
		LibavFormat: "mpegts",
		Profile:     "high",
		HDR:         "off",
		Level:       "4.1",
		Framerate:   30,
		Width:       1920,
		Height:      1080,
		Intra:       15,
		AVSync:      0,
		AWB:         "indoor",
		RTSPHost:    "",
		RTSPPort:    8554,
		RTSPPath:    "kali1080",
		Nice:        -11,
		Sharpness:   1.0,
		Contrast:    1.0,
		Brightness:  0.0,
		Saturation:  1.0,
		Exposure:    "normal",
	}
}

// RTSPURL returns the display URL of the stream.
// An empty or 127.0.0.1 rtsp_host is replaced by lanAddr.
func (c *StreamConfig) RTSPURL(lanAddr string) string {
	host := c.RTSPHost
	if host == "" || host == "127.0.0.1" {
		host = lanAddr
	}
	return fmt.Sprintf("rtsp://%s/%s", net.JoinHostPort(host, strconv.Itoa(c.RTSPPort)), c.RTSPPath)
}
