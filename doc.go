// Copyright (c) 2014-2015 The Notify Authors. All rights reserved.
// Use of this source code is governed by the MIT license that can be
// found in the LICENSE file.

// Package watchtree watches a directory and every descendant directory
// beneath it for filesystem changes and reports them as a stream of
// semantic events: files and directories created, deleted, modified,
// renamed and moved.
//
// The package maintains its own cache mapping kernel watch descriptors
// to directory paths and keeps it consistent as the watched tree is
// renamed, moved or partially torn down underneath it. It recovers on
// its own from kernel event-queue overflow and from any detected
// inconsistency between the cache and the kernel's set of live watches.
//
// Only Linux is supported: the package is built directly on inotify,
// epoll and eventfd via golang.org/x/sys/unix.
package watchtree
