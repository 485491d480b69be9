package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iocost-sim/iocost-sim/sim"
)

// loadCalibration reads the host section of a calibration file. A missing
// page_size is taken from the machine running the simulator and a missing
// logical_block_size from the filesystem holding dataDir.
func loadCalibration(path, host, dataDir string) (*sim.Calibration, error) {
	file, err := sim.LoadCalibrationFile(path)
	if err != nil {
		return nil, err
	}
	cal, err := file.Host(host)
	if err != nil {
		return nil, err
	}
	if cal.PageSize == 0 {
		cal.PageSize = hostPageSize()
		logrus.Debugf("page_size not calibrated for host %s, using %d", host, cal.PageSize)
	}
	if cal.LogicalBlockSize == 0 && dataDir != "" {
		bs, err := hostBlockSize(dataDir)
		if err != nil {
			return nil, fmt.Errorf("host %q: logical_block_size not calibrated: %w", host, err)
		}
		cal.LogicalBlockSize = bs
		logrus.Debugf("logical_block_size not calibrated for host %s, using %d from %s", host, bs, dataDir)
	}
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("host %q: %w", host, err)
	}
	return &cal, nil
}
