// Package imagepkg renders the six-video share image.
//
// The image is a fixed 716×462 layout (1432×924 pixels at 2× density): a
// gradient header with the author's title, a 3×2 grid of rounded cells and a
// hashtag footer. Filled cells show their thumbnail cover-fitted and clipped
// to the cell with a bottom shade and the video title. A thumbnail that is
// missing or fails to draw turns into a flat tinted cell; it never fails the
// whole render.
//
// Drawing goes through the Surface interface. Canvas is the raster
// implementation; tests can substitute a recording surface.
package imagepkg
