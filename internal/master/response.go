package master

import "dpmaster/internal/protocol"

// buildPages splits a query snapshot into encoded getserversResponse
// datagrams of at most perPage records, then appends the zero-record EOT
// page. The EOT page is always its own datagram so a client can detect
// completion even when the list is empty or a multiple of the page size.
func buildPages(addrs []protocol.ServerAddr, perPage int) [][]byte {
	pages := make([][]byte, 0, len(addrs)/perPage+1)
	for start := 0; start < len(addrs); start += perPage {
		end := start + perPage
		if end > len(addrs) {
			end = len(addrs)
		}
		pages = append(pages, protocol.Encode(protocol.GetServersResponse{
			Servers: addrs[start:end],
		}))
	}
	return append(pages, protocol.Encode(protocol.GetServersResponse{EOT: true}))
}
