// Package app assembles the configuration, the reference tables and the
// batch runner that drives census data files through reading, checking
// and exporting. Files in a batch are processed concurrently and fail
// independently; a broken file is reported in the summary without
// stopping the rest.
package app
