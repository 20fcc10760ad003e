// Package replay provides a decoder for Fortnite (.replay) files.
//
// A replay is a little-endian binary container made of a fixed meta record
// followed by length-framed chunks:
//   - meta: [magic:u32][fileVersion:u32][lengthMs:u32][networkVersion:u32][changelist:u32]
//     [friendlyName:string][isLive:u32] then, depending on fileVersion,
//     [timestamp:u64] [isCompressed:u32] [isEncrypted:u32][keyLen:u32][key]
//   - chunk: [type:u32][size:i32][payload:size bytes]
//
// Only HEADER and EVENT chunks are decoded. REPLAYDATA and CHECKPOINT chunks
// are recorded but their payloads are skipped. After every chunk the cursor
// is moved to the end of its frame, whatever the chunk parser consumed.
//
// The whole replay is held in memory; a Decoder is a single-use session and
// is not safe for concurrent use. Independent replays can be decoded in
// parallel (see the batch sub-package).
package replay
