package driver

// copyToRing is the producer / buffer-switch handler (C5). It runs on the
// upstream's real-time thread: it must not allocate, lock for long, or
// block, so its only work is two bounded memcpy-equivalent ring pushes.
func (d *Driver) copyToRing(index int32) {
	if d.haveLastIndex && d.lastIndex == index {
		return
	}
	d.haveLastIndex = true
	d.lastIndex = index

	if d.outL < 0 || index < 0 || int(index) > 1 {
		return
	}

	left := d.bufferInfos[d.outL].Buffers[index]
	right := left
	if d.outR != d.outL {
		right = d.bufferInfos[d.outR].Buffers[index]
	}

	bytesToCopy := d.blockSize * d.sampleType.ByteWidth()
	if bytesToCopy <= 0 || bytesToCopy > len(left) {
		bytesToCopy = len(left)
	}

	if d.ringL.AvailableWrite() < bytesToCopy {
		d.overrunCount.Add(1)
		return
	}

	d.ringL.Push(left[:bytesToCopy])
	d.ringR.Push(right[:bytesToCopy])
}
