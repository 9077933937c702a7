// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package actor provides a minimal actor system: per-actor unbounded
// mailboxes and a System that polls any number of actors on a fixed pool of
// worker goroutines.
//
// The flow of one message:
//
//	,------.        ,-------.      ,-----.        ,------.        ,-----.
//	|Sender|        |Mailbox|      |ready|        |System|        |Actor|
//	`--+---'        `---+---'      `--+--'        `--+---'        `--+--'
//	   |   Send(msg)    |             |              |               |
//	   | -------------->|             |              |               |
//	   |                |             |              |               |
//	   |       schedule(proc)         |              |               |
//	   | --------------------------->enqueue         |               |
//	   |                |             |   signal()   |               |
//	   |                |             |------------->|               |
//	   |                |             |  fetchProc() |               |
//	   |                |             |<-------------|               |
//	   |                |      TryReceive batch      |               |
//	   |                |<---------------------------|               |
//	   |                |             |              |  Poll(msgs)   |
//	   |                |             |              |-------------->|
//
// A proc (mailbox plus actor) is enqueued at most once: its scheduled flag
// stays set from enqueue until the polling worker finishes the round, and the
// worker re-checks the mailbox after clearing the flag so no send is lost.
// An actor whose Poll returns false is removed and never polled again.
package actor
