package nntp

import (
	"context"

	"github.com/marmos91/spool/internal/logger"
)

// TryEnableCompression negotiates wire compression, preferring the
// standard COMPRESS DEFLATE (RFC 8054) and falling back to the de-facto
// XFEATURE COMPRESS GZIP. A server that supports neither leaves the
// connection uncompressed; that is not an error. Only transport
// failures are returned.
//
// The capability cache is invalidated on success because servers
// re-advertise a different set once a compression layer is active.
func (c *Conn) TryEnableCompression(ctx context.Context) (CompressionMode, error) {
	if c.compression != CompressionNone {
		return c.compression, nil
	}

	resp, err := c.roundTrip(ctx, BuildCompressDeflate())
	if err != nil {
		return CompressionNone, err
	}
	if resp.Code == CodeCompressionActive {
		// Everything after the 206 line is deflate stream on both
		// directions.
		if err := c.framer.EnableDeflate(); err != nil {
			return CompressionNone, c.fail(err)
		}
		c.compression = CompressionDeflate
		c.caps = nil
		logger.Debug("compression negotiated", "host", c.cfg.Host, "mode", "deflate")
		return CompressionDeflate, nil
	}

	resp, err = c.roundTrip(ctx, BuildXFeatureCompressGzip())
	if err != nil {
		return CompressionNone, err
	}
	if resp.Code == CodeXFeatureEnabled {
		// Status lines stay plain; multi-line bodies arrive as gzip
		// blobs terminated by CRLF dot CRLF.
		c.framer.EnableGzipBodies()
		c.compression = CompressionGzip
		c.caps = nil
		logger.Debug("compression negotiated", "host", c.cfg.Host, "mode", "gzip")
		return CompressionGzip, nil
	}

	return CompressionNone, nil
}
