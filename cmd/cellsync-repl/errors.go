package main

import "errors"

var (
	errConfigFileRead = errors.New("cannot read config file")
	errConfigInvalid  = errors.New("invalid config file")
	errDumpCorrupt    = errors.New("dump file failed CRC32C integrity check")
	errDumpTooShort   = errors.New("dump file too short to contain a header")
	errUsage          = errors.New("usage error")
)
