/*
Package offsetidx builds offset indexes for paged column chunks and contains a
minimal chunk writer and reader which persist them.

An offset index records, for every page of a column chunk, its byte offset,
its compressed size (including the page header), the index of its first row
within the row group and, optionally, the number of unencoded BYTE_ARRAY data
bytes. Readers use it to seek directly to the page containing a row.

Indexes are accumulated by a Builder and finalized into an immutable
OffsetIndex. Writers feed a Builder with page sizes and row counts, while
metadata readers feed it with absolute page locations. A shared no-op Builder
is available for producers which do not collect offset indexes.

Data Structure Documentation

Chunk

A chunk contains a series of pages followed by an offset index and a chunk
footer.

    Chunk layout:
    +--------+---------+--------+--------------+--------------+
    | page 1 |   ...   | page n | offset index | chunk footer |
    +--------+---------+--------+--------------+--------------+

    Offset index:
    +-------------------+-----------------+----------------------+------------------------+-------------------------+-----+
    | offset 1 (varint) | size 1 (varint) | first row 1 (varint) | [unencoded 1 (varint)] | offset 2 (varint,delta) | ... |
    +-------------------+-----------------+----------------------+------------------------+-------------------------+-----+

    Chunk footer:
    +------------------------+----------------------+-----------------+--------------------------+-----------------+
    | index offset (8 bytes) | page count (4 bytes) | flags (4 bytes) | index checksum (8 bytes) | magic (8 bytes) |
    +------------------------+----------------------+-----------------+--------------------------+-----------------+

First row indexes are delta encoded like offsets. Decoded offsets are absolute
positions within the file. The index checksum is the xxhash64 of the encoded
offset index. Unencoded byte counts are only present if bit 0 of the flags is
set.

Page

A page is the (compressed) payload, followed by a single-byte compression
type indicator.

    Page layout:
    +-------------------+---------------------------+
    | payload (varlen)  | compression type (1-byte) |
    +-------------------+---------------------------+
*/
package offsetidx
