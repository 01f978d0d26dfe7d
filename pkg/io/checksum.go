package io

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

type ChecksumReader interface {
	io.Reader

	// Get Checksum calcurated from bytes have been read
	Sum() []byte

	// Sum as hex string
	HexSum() string
}

type sha256Reader struct {
	source io.Reader
	hash   hash.Hash
}

func NewSHA256Reader(source io.Reader) ChecksumReader {
	return &sha256Reader{
		source: source,
		hash:   sha256.New(),
	}
}

func (sr *sha256Reader) Read(p []byte) (int, error) {
	n, err := sr.source.Read(p)
	if 0 < n {
		sr.hash.Write(p[:n])
	}
	return n, err
}

func (sr *sha256Reader) Sum() []byte {
	return sr.hash.Sum(nil)
}

func (sr *sha256Reader) HexSum() string {
	return hex.EncodeToString(sr.Sum())
}
