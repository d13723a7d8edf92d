package utils

import "os/exec"

// CheckFFmpeg 检查ffmpeg和ffprobe是否都在PATH中
func CheckFFmpeg() bool {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return false
		}
	}
	return true
}
