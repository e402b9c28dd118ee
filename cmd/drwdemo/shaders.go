package main

// Every program reads its object through the per-chunk blocks, indexed by
// baseInstance + gl_InstanceID.
const objectBlocks = `
struct ObjectMatrices {
	mat4 model;
	mat4 modelInverse;
};
layout(std140) uniform modelBlock {
	ObjectMatrices drw_matrices[512];
};

struct ObjectInfos {
	vec4 orcoOffset;
	vec4 orcoScale;
	vec4 color;
	vec4 infos; // index, unused, random, flag
};
layout(std140) uniform infoBlock {
	ObjectInfos drw_infos[512];
};

uniform mat4 viewProj;
uniform int baseInstance;

int resourceID() {
	return baseInstance + gl_InstanceID;
}
`

const meshVertex = `#version 410 core
layout(location = 0) in vec3 position;
layout(location = 1) in vec3 normal;
` + objectBlocks + `
out vec3 vNormal;
out vec4 vColor;
flat out float vFlag;

void main() {
	int id = resourceID();
	mat4 model = drw_matrices[id].model;
	vNormal = mat3(transpose(drw_matrices[id].modelInverse)) * normal;
	vColor = drw_infos[id].color;
	vFlag = drw_infos[id].infos.w;
	gl_Position = viewProj * model * vec4(position, 1.0);
}
`

const meshFragment = `#version 410 core
in vec3 vNormal;
in vec4 vColor;
flat in float vFlag;
uniform vec4 materialColor;
out vec4 fragColor;

void main() {
	vec3 light = normalize(vec3(0.4, 1.0, 0.6));
	float diffuse = max(dot(normalize(vNormal), light), 0.0) * 0.8 + 0.2;
	vec4 base = vColor * vec4(1.0, 1.0, 1.0, materialColor.a);
	// Selected objects are tinted.
	if (int(abs(vFlag)) / 2 % 2 == 1) {
		base.rgb = mix(base.rgb, vec3(1.0, 0.6, 0.1), 0.35);
	}
	fragColor = vec4(base.rgb * diffuse, base.a);
}
`

const flatVertex = `#version 410 core
layout(location = 0) in vec3 position;
` + objectBlocks + `
out vec4 vColor;

void main() {
	int id = resourceID();
	vColor = drw_infos[id].color;
	gl_Position = viewProj * drw_matrices[id].model * vec4(position, 1.0);
}
`

const flatFragment = `#version 410 core
in vec4 vColor;
out vec4 fragColor;

void main() {
	fragColor = vColor;
}
`

// texturedVertex passes the object space position on; the fragment stage
// projects it along the dominant normal axis to get texture coordinates.
const texturedVertex = `#version 410 core
layout(location = 0) in vec3 position;
layout(location = 1) in vec3 normal;
` + objectBlocks + `
out vec3 vLocal;
out vec3 vLocalNormal;
out vec3 vNormal;
out vec4 vColor;

void main() {
	int id = resourceID();
	vLocal = position;
	vLocalNormal = normal;
	vNormal = mat3(transpose(drw_matrices[id].modelInverse)) * normal;
	vColor = drw_infos[id].color;
	gl_Position = viewProj * drw_matrices[id].model * vec4(position, 1.0);
}
`

const texturedFragment = `#version 410 core
in vec3 vLocal;
in vec3 vLocalNormal;
in vec3 vNormal;
in vec4 vColor;
uniform sampler2D albedo;
uniform vec4 materialColor;
out vec4 fragColor;

void main() {
	vec3 n = abs(vLocalNormal);
	vec2 uv = n.y > 0.5 ? vLocal.xz : (n.x > 0.5 ? vLocal.zy : vLocal.xy);
	vec3 light = normalize(vec3(0.4, 1.0, 0.6));
	float diffuse = max(dot(normalize(vNormal), light), 0.0) * 0.8 + 0.2;
	vec4 base = texture(albedo, uv + 0.5) * vColor;
	fragColor = vec4(base.rgb * diffuse, base.a * materialColor.a);
}
`

// gridVertex lays out lines alternating along X and Z, one unit apart,
// centred on the object.
const gridVertex = `#version 410 core
` + objectBlocks + `
uniform vec4 materialColor;
out vec4 vColor;

void main() {
	int id = resourceID();
	int line = gl_VertexID / 2;
	float offset = float(line / 2) - 10.0;
	float end = (gl_VertexID % 2 == 0) ? -10.0 : 10.0;
	vec3 p = (line % 2 == 0) ? vec3(offset, 0.0, end) : vec3(end, 0.0, offset);
	vColor = materialColor * vec4(1.0, 1.0, 1.0, 0.5);
	gl_Position = viewProj * drw_matrices[id].model * vec4(p, 1.0);
}
`

// pointsVertex spreads points on a unit circle.
const pointsVertex = `#version 410 core
` + objectBlocks + `
uniform vec4 materialColor;
out vec4 vColor;

void main() {
	int id = resourceID();
	float a = float(gl_VertexID) * 0.7853982;
	vColor = materialColor;
	gl_Position = viewProj * drw_matrices[id].model * vec4(cos(a), 0.0, sin(a), 1.0);
}
`
