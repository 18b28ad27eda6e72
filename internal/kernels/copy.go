package kernels

import "cellworld/internal/gpu"

const copySource = `__kernel void initialize_world(
    __global uint* out,
    const int width,
    const int height)
{
}

__kernel void update_world(
    __global const uint* live,
    __global uint* next_world,
    const int width,
    const int height)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    int idx = y * width + x;
    next_world[idx] = live[idx];
}
`

// Copy is the identity transition: every generation equals its predecessor.
var Copy = gpu.Program{
	Name:       "copy",
	Source:     copySource,
	Initialize: func(int, int, []uint32, []uint32, gpu.Dims) {},
	Update: func(x, y int, live, next []uint32, dims gpu.Dims) {
		idx := y*dims.Width + x
		next[idx] = live[idx]
	},
}
