// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/vechain/vmcore/metrics"

var (
	metricTxCount    = metrics.LazyLoadCounterVec("runtime_tx_count", []string{"result"})
	metricFrameCount = metrics.LazyLoadCounterVec("runtime_frame_count", []string{"outcome"})
	metricTxGasUsed  = metrics.LazyLoadHistogram("runtime_tx_gas_used", metrics.BucketGas)

	metricFrameGasUsed = metrics.LazyLoadHistogramVec("runtime_frame_gas_used", []string{"mode"}, metrics.BucketGas)
)
