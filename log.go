//go:build !ios && !android && (amd64 || arm64)

package videodec

// debugf logs at debug level when a logger is installed with WithLogger.
func (d *Decoder) debugf(msg string, keyvals ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Debug(msg, keyvals...)
}
