package postgres

import "time"

const (
	poolHealthCheckPeriod = time.Minute
	poolMaxConnLifetime   = time.Hour
	poolMaxConnIdleTime   = 30 * time.Minute
	dbPingTimeout         = 5 * time.Second

	errChannelNotFound    = "channel not found"
	errAssetNotFound      = "asset not found"
	errAttachmentNotFound = "attachment not found"
)
