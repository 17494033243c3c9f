// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxGossipDocument bounds the size of a gossip response body
const maxGossipDocument = 4 << 20

// fetchGossip reads the cluster view of a single seed
func fetchGossip(ctx context.Context, client *http.Client, seed GossipSeed) (*ClusterInfo, error) {
	url := fmt.Sprintf("http://%s/gossip?format=json", seed.EndPoint)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if seed.HostHeader != "" {
		request.Host = seed.HostHeader
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxGossipDocument))
		return nil, fmt.Errorf("gossip seed %s answered %s", seed.EndPoint, response.Status)
	}

	info := new(ClusterInfo)
	if err := json.NewDecoder(io.LimitReader(response.Body, maxGossipDocument)).Decode(info); err != nil {
		return nil, fmt.Errorf("invalid gossip from %s: %w", seed.EndPoint, err)
	}
	return info, nil
}
