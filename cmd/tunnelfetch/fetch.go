// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"code.hybscloud.com/store"
	"code.hybscloud.com/store/tunnelhttp"
)

type fetchResult = tunnelhttp.RequestResult[[]byte, tunnelhttp.ResponseError]

type fetchState struct {
	Started  bool
	Results  []string
	Terminal *fetchResult
}

// Succeeded reports whether the request completed with a 2xx response.
func (s fetchState) Succeeded() bool {
	if s.Terminal == nil {
		return false
	}
	r, ok := s.Terminal.Completed()
	return ok && r.IsRight()
}

type fetchAction struct {
	start  bool
	result *fetchResult
}

// localTunnel stands in for the system VPN: it is always connected.
type localTunnel struct {
	statuses    *store.Subject[tunnelhttp.TunnelStatus]
	connections *store.Subject[*tunnelhttp.Connection]
}

func newLocalTunnel() localTunnel {
	statuses := store.NewSubject(tunnelhttp.TunnelStatus{
		Intent: tunnelhttp.IntentStart,
		VPN:    tunnelhttp.VPNConnected,
	})
	conn := tunnelhttp.NewConnection(func() tunnelhttp.ResourceStatus {
		return tunnelhttp.ResourceStatus{VPN: statuses.Value().VPN}
	})
	return localTunnel{
		statuses:    statuses,
		connections: store.NewSubject(conn),
	}
}

type fetchEnv struct {
	client  *tunnelhttp.Client
	request *tunnelhttp.RetriableRequest[[]byte, tunnelhttp.ResponseError]
	tunnel  localTunnel
}

func fetchReducer(state *fetchState, action fetchAction, env fetchEnv) []store.Effect[fetchAction] {
	switch {
	case action.start:
		if state.Started {
			return nil
		}
		state.Started = true
		results := env.request.Effect(env.tunnel.statuses, env.tunnel.connections, env.client)
		return []store.Effect[fetchAction]{
			store.Map(results, func(r fetchResult) fetchAction {
				return fetchAction{result: &r}
			}),
		}
	case action.result != nil:
		r := *action.result
		line := r.String()
		if body, ok := r.Completed(); ok {
			if data, ok := body.GetRight(); ok {
				line = string(data)
			}
		}
		state.Results = append(state.Results, line)
		if r.IsTerminal() {
			state.Terminal = &r
		}
	}
	return nil
}
