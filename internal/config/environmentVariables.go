package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	NoAuthBypass = true //dev only - skips bearer token validation
	AuthToken    = ""

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//document intake limits - checked in this order
	MaxUploadSizeBytes      int64 = 15 << 20 //15mb hard ceiling
	MaxPageCount                  = 80       //hard cap, reject outright
	BackgroundSizeThreshold int64 = 5 << 20  //above this, skip the sync attempt
	BackgroundPageThreshold       = 15

	//pipeline
	ChunkSizePages      = 15 //max pages per recognition call
	MaxConcurrentChunks = 2  //batch size for backend calls
	SyncDeadline        = 8 * time.Second
	AsyncRunTimeout     = 10 * time.Minute

	//recognition backend
	RecognitionCallTimeout = 90 * time.Second
	RecognitionMediaType   = "application/pdf"
	ProviderTag            = "docai"

	//fusion thresholds
	PatternConfidenceFloor = 0.65
	PatternConfidenceCeil  = 0.75
	ReviewThreshold        = 0.60
	MaxPendingFields       = 5
	CoherencePenalty       = 0.7

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 30 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore = 0

	RedisJobStoreTTL = 24 * time.Hour
)
