package asynclog

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// heartbeat writes a statistics record. It bypasses the level filter so a
// quiet logger still reports that it is alive.
func (c *core) heartbeat() {
	if c.deliver == nil {
		return
	}
	sequence := c.heartbeatSeq.Add(1)
	snap := c.Statistics()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	args := []any{
		"type", "heartbeat",
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", time.Since(c.started).Hours()),
		"processed_logs", snap.MessagesProcessed,
		"errors", snap.ErrorsOccurred,
		"flushes", snap.FlushOperations,
		"avg_latency_us", fmt.Sprintf("%.1f", snap.AvgLatencyUs),
	}
	if c.queue != nil {
		args = append(args,
			"queue_size", snap.Queue.CurrentSize,
			"queue_max", snap.Queue.MaxSize,
			"dropped_logs", snap.Queue.DroppedMessages,
		)
	}
	if count, size, err := logDirUsage(c.getConfig().LogPath()); err == nil {
		args = append(args,
			"log_file_count", count,
			"total_log_size_mb", fmt.Sprintf("%.2f", float64(size)/(1024*1024)),
		)
	} else {
		c.diag.internalLog("logger '%s': heartbeat failed to read log directory: %v", c.name, err)
	}
	args = append(args,
		"alloc_mb", fmt.Sprintf("%.2f", float64(memStats.Alloc)/(1000*1000)),
		"num_goroutine", runtime.NumGoroutine(),
	)

	if err := c.deliver(c.newRecord(LevelInfo, heartbeatMessage(args), nil)); err != nil {
		c.diag.internalLog("logger '%s': heartbeat failed: %v", c.name, err)
	}
}

// heartbeatMessage renders key/value pairs as "k=v k=v"
func heartbeatMessage(args []any) string {
	var sb strings.Builder
	for i := 0; i+1 < len(args); i += 2 {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%v=%v", args[i], args[i+1])
	}
	return sb.String()
}
