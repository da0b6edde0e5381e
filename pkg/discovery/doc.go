// Package discovery locates per-plane QC artifacts inside a processed
// session directory.
//
// A session is laid out as one directory per imaging plane, each holding
// the outputs of processing stages in subfolders:
//
//	data/
//	  session/
//	    plane_0/motion_correction/average_projection.png
//	    plane_0/motion_correction/maximum_projection.png
//	    plane_1/motion_correction/...
//
// [Scanner.Collect] walks every plane, gathers files matching a list of
// substring patterns, and returns them in row-major order together with
// one row label per contributing plane. All access goes through an
// [afero.Fs], so scans can run against in-memory filesystems in tests.
package discovery
