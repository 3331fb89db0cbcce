package influx

import "errors"

var (
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
