package kernels

import "cellworld/internal/gpu"

const lifeSource = `#define DEAD 0u
#define ALIVE 1u
#define WALL 2u

__kernel void initialize_world(
    __global uint* out,
    const int width,
    const int height)
{
    int x = get_global_id(0);
    int y = get_global_id(1);
    if (x >= width || y >= height) {
        return;
    }
    int idx = y * width + x;
    uint c = out[idx];
    if (c != DEAD && c != WALL) {
        out[idx] = ALIVE;
    }
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
    uint c = live[idx];
    if (c == WALL) {
        next_world[idx] = WALL;
        return;
    }
    int n = 0;
    for (int dy = -1; dy <= 1; dy++) {
        int ny = (y + dy + height) % height;
        for (int dx = -1; dx <= 1; dx++) {
            if (dx == 0 && dy == 0) {
                continue;
            }
            int nx = (x + dx + width) % width;
            if (live[ny * width + nx] == ALIVE) {
                n++;
            }
        }
    }
    if (n == 3 || (n == 2 && c == ALIVE)) {
        next_world[idx] = ALIVE;
    } else {
        next_world[idx] = DEAD;
    }
}
`

// Life is Conway's B3/S23 rule on a torus. Wall cells never change and count
// as dead neighbours.
var Life = gpu.Program{
	Name:       "life",
	Source:     lifeSource,
	Initialize: lifeInitialize,
	Update:     lifeUpdate,
}

func lifeInitialize(x, y int, _, out []uint32, dims gpu.Dims) {
	idx := y*dims.Width + x
	out[idx] = normalize(out[idx])
}

func lifeUpdate(x, y int, live, next []uint32, dims gpu.Dims) {
	w, h := dims.Width, dims.Height
	idx := y*w + x
	c := live[idx]
	if c == Wall {
		next[idx] = Wall
		return
	}
	n := 0
	for dy := -1; dy <= 1; dy++ {
		ny := (y + dy + h) % h
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx := (x + dx + w) % w
			if live[ny*w+nx] == Alive {
				n++
			}
		}
	}
	if n == 3 || (n == 2 && c == Alive) {
		next[idx] = Alive
	} else {
		next[idx] = Dead
	}
}
