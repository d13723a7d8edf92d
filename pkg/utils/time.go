package utils

import (
	"fmt"
	"math"
)

// FormatTimestamp 将秒数格式化为 HH:MM:SS.mmm，小时数不按天回绕
func FormatTimestamp(seconds float64) string {
	return formatClock(seconds, ".")
}

// FormatSRTTime 将秒数格式化为SRT时间格式 HH:MM:SS,mmm
func FormatSRTTime(seconds float64) string {
	return formatClock(seconds, ",")
}

func formatClock(seconds float64, sep string) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	// 先取整到微秒，再截断到毫秒
	micros := int64(math.Round(seconds * 1e6))
	ms := micros / 1000

	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	secs := (ms % 60_000) / 1000
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, sep, millis)
}

// FormatTimeDuration 格式化时间长度为易读格式
func FormatTimeDuration(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatFileSize 将字节大小格式化为人类可读格式
func FormatFileSize(sizeBytes int64) string {
	const (
		B  int64 = 1
		KB int64 = 1024 * B
		MB int64 = 1024 * KB
		GB int64 = 1024 * MB
	)

	var (
		unit     string
		unitSize int64
	)

	switch {
	case sizeBytes >= GB:
		unit, unitSize = "GB", GB
	case sizeBytes >= MB:
		unit, unitSize = "MB", MB
	case sizeBytes >= KB:
		unit, unitSize = "KB", KB
	default:
		unit, unitSize = "B", B
	}

	return fmt.Sprintf("%.2f %s", float64(sizeBytes)/float64(unitSize), unit)
}
