package util

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProbeDuration 用 ffprobe 读取直链视频时长（秒），需要本机安装 ffmpeg
func ProbeDuration(videoURL string) (float64, error) {
	jsonOutput, err := ffmpeg.Probe(videoURL)
	if err != nil {
		return 0, fmt.Errorf("probe video: %w", err)
	}
	return parseProbeDuration(jsonOutput)
}

func parseProbeDuration(jsonOutput string) (float64, error) {
	var result struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Duration  string `json:"duration"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}

	if d, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil && d > 0 {
		return d, nil
	}
	// 部分流媒体 format 中没有时长，回退到视频流
	for _, s := range result.Streams {
		if s.CodecType != "video" {
			continue
		}
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > 0 {
			return d, nil
		}
	}
	return 0, fmt.Errorf("probe output has no duration")
}
